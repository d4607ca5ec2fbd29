package academics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "150", want: 15000},
		{in: "150.5", want: 15050},
		{in: "150.50", want: 15050},
		{in: "0.01", want: 1},
		{in: "0", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "1.005", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "Inf", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCents(tt.in)
			if tt.wantErr {
				assert.Equal(t, errInvalidAmount, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "150.50", FormatCents(15050))
	assert.Equal(t, "0.07", FormatCents(7))
	assert.Equal(t, "-1.20", FormatCents(-120))
}

func TestSortSlots(t *testing.T) {
	slots := []TimetableSlot{
		{Day: "Wednesday", StartTime: "09:00"},
		{Day: "Monday", StartTime: "14:00"},
		{Day: "Monday", StartTime: "08:30"},
		{Day: "Sunday", StartTime: "10:00"},
	}
	SortSlots(slots)

	got := make([]string, 0, len(slots))
	for _, s := range slots {
		got = append(got, s.Day+" "+s.StartTime)
	}
	assert.Equal(t, []string{"Monday 08:30", "Monday 14:00", "Wednesday 09:00", "Sunday 10:00"}, got)
}

func TestNewAttendance_Clean(t *testing.T) {
	na := NewAttendance{Course: " Physics ", Status: "late"}
	na.Clean()
	assert.Equal(t, "Physics", na.Course)
	assert.Equal(t, AttendanceLate, na.Status)
}
