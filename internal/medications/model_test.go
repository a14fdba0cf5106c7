package medications

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdherence(t *testing.T) {
	assert.Equal(t, 0, Adherence(nil))
	assert.Equal(t, 67, Adherence([]Dose{{Taken: true}, {Taken: true}, {Taken: false}}))
	assert.Equal(t, 33, Adherence([]Dose{{Taken: true}, {Taken: false}, {Taken: false}}))
	assert.Equal(t, 100, Adherence([]Dose{{Taken: true}}))
	assert.Equal(t, 50, Adherence([]Dose{{Taken: true}, {Taken: false}}))
}

func TestRecordDoseKeepsOneRecordPerDay(t *testing.T) {
	m := &Medication{}
	m.RecordDose("2025-03-02", true)
	m.RecordDose("2025-03-01", true)
	m.RecordDose("2025-03-03", false)
	assert.Equal(t, 67, m.Adherence)

	m.RecordDose("2025-03-03", true)
	assert.Len(t, m.History, 3)
	assert.Equal(t, 100, m.Adherence)
	assert.Equal(t, []string{"2025-03-01", "2025-03-02", "2025-03-03"}, []string{m.History[0].Date, m.History[1].Date, m.History[2].Date})
}

func TestPatchApplyLeavesHistoryAlone(t *testing.T) {
	m := Medication{Name: "Metformin", Dosage: "500mg", History: []Dose{{Date: "2025-03-01", Taken: true}}, Adherence: 100}
	name := "Metformin XR"
	off := false
	Patch{Name: &name, Reminders: &off}.Apply(&m)

	assert.Equal(t, "Metformin XR", m.Name)
	assert.Equal(t, "500mg", m.Dosage)
	assert.False(t, m.Reminders)
	assert.Len(t, m.History, 1)
	assert.Equal(t, 100, m.Adherence)
}
