package dist

// Consistency assertions, compiled out under -tags nochecks. In that mode a
// violated precondition yields undefined behavior instead of a reported
// failure.

func assertSameGrids(a, b *DistMat) {
	if !checksEnabled {
		return
	}
	if a.grid != b.grid {
		preconditionf("matrices on different grids")
	}
}

func assertSameGridData(m *DistMat, data DistData) {
	if !checksEnabled {
		return
	}
	if data.Grid != nil && data.Grid != m.grid {
		preconditionf("alignment with a descriptor from a different grid")
	}
}

func assertConforming(b, a *DistMat) {
	if !checksEnabled {
		return
	}
	if b.height != a.height || b.width != a.width {
		preconditionf("nonconformal dimensions: %d x %d vs %d x %d",
			b.height, b.width, a.height, a.width)
	}
}

func assertNotLocked(m *DistMat) {
	if !checksEnabled {
		return
	}
	if m.Locked() {
		preconditionf("write to a locked matrix view")
	}
}

func assertDims(m *DistMat) {
	if !checksEnabled {
		return
	}
	if !m.localDimsMatch() {
		preconditionf("local dimensions %d x %d inconsistent with layout %s",
			m.LocalHeight(), m.LocalWidth(), m.String())
	}
}
