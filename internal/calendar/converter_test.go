package calendar

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEpoch(t *testing.T) {
	got, err := CivilToSource(Epoch)
	if err != nil {
		t.Fatalf("CivilToSource(epoch) error: %v", err)
	}

	want := SourceDate{Year: 2018, MonthIndex: 0, MonthName: "መስከረም", Day: 1}
	if got != want {
		t.Errorf("CivilToSource(epoch) = %+v, want %+v", got, want)
	}

	if civil := SourceToCivil(0, 1); !civil.Equal(date(2025, time.September, 11)) {
		t.Errorf("SourceToCivil(0, 1) = %s, want 2025-09-11", FormatDate(civil))
	}

	if Epoch.Weekday() != time.Thursday {
		t.Errorf("epoch weekday = %s, want Thursday", Epoch.Weekday())
	}
	if WeekdayOfMonthStart(0) != EpochWeekday {
		t.Errorf("WeekdayOfMonthStart(0) = %d, want %d", WeekdayOfMonthStart(0), EpochWeekday)
	}
}

func TestRoundTrip(t *testing.T) {
	count := 0
	for m := 0; m < MonthCount; m++ {
		for d := 1; d <= DaysInMonth(m); d++ {
			civil := SourceToCivil(m, d)
			got, err := CivilToSource(civil)
			if err != nil {
				t.Fatalf("CivilToSource(%s) error: %v", FormatDate(civil), err)
			}
			if got.MonthIndex != m || got.Day != d || got.Year != Year {
				t.Errorf("round trip %d/%d via %s = %+v", m, d, FormatDate(civil), got)
			}
			count++
		}
	}

	if count != DaysInYear {
		t.Errorf("visited %d days, want %d", count, DaysInYear)
	}
}

func TestCivilToSource_Range(t *testing.T) {
	tests := []struct {
		name    string
		civil   time.Time
		want    SourceDate
		wantErr error
	}{
		{
			name:    "day before epoch",
			civil:   date(2025, time.September, 10),
			wantErr: ErrNotInRange,
		},
		{
			name:  "first day",
			civil: date(2025, time.September, 11),
			want:  SourceDate{Year: 2018, MonthIndex: 0, MonthName: "መስከረም", Day: 1},
		},
		{
			name:  "Meskel",
			civil: date(2025, time.September, 27),
			want:  SourceDate{Year: 2018, MonthIndex: 0, MonthName: "መስከረም", Day: 17},
		},
		{
			name:  "Genna",
			civil: date(2026, time.January, 7),
			want:  SourceDate{Year: 2018, MonthIndex: 3, MonthName: "ታኅሣሥ", Day: 29},
		},
		{
			name:  "Timket",
			civil: date(2026, time.January, 19),
			want:  SourceDate{Year: 2018, MonthIndex: 4, MonthName: "ጥር", Day: 11},
		},
		{
			name:  "last day of Nehase",
			civil: date(2026, time.September, 5),
			want:  SourceDate{Year: 2018, MonthIndex: 11, MonthName: "ነሐሴ", Day: 30},
		},
		{
			name:  "last day of the year",
			civil: date(2026, time.September, 10),
			want:  SourceDate{Year: 2018, MonthIndex: 12, MonthName: "ጳጉሜ", Day: 5},
		},
		{
			name:    "365 days after epoch",
			civil:   date(2026, time.September, 11),
			wantErr: ErrNotInRange,
		},
		{
			name:    "far past",
			civil:   date(1900, time.January, 1),
			wantErr: ErrNotInRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CivilToSource(tt.civil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CivilToSource() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CivilToSource() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CivilToSource() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCivilToSource_IgnoresTimeOfDay(t *testing.T) {
	eat := time.FixedZone("EAT", 3*60*60)

	// 23:30 in Addis Ababa on the epoch is still the epoch there, even
	// though it is 20:30 UTC.
	late := time.Date(2025, time.September, 11, 23, 30, 0, 0, eat)
	got, err := CivilToSource(late)
	if err != nil {
		t.Fatalf("CivilToSource() error: %v", err)
	}
	if got.MonthIndex != 0 || got.Day != 1 {
		t.Errorf("CivilToSource(late evening) = %+v, want Meskerem 1", got)
	}

	// 00:10 local on Sep 11 is Sep 10 in UTC; the local date wins.
	early := time.Date(2025, time.September, 11, 0, 10, 0, 0, eat)
	if _, err := CivilToSource(early); err != nil {
		t.Errorf("CivilToSource(early morning) error = %v, want nil", err)
	}
}

func TestWeekdayOfMonthStart(t *testing.T) {
	for m := 0; m < MonthCount; m++ {
		want := int(SourceToCivil(m, 1).Weekday())
		if got := WeekdayOfMonthStart(m); got != want {
			t.Errorf("WeekdayOfMonthStart(%d) = %d, want %d (civil weekday)", m, got, want)
		}
	}

	for m := 0; m+1 < MonthCount; m++ {
		want := (WeekdayOfMonthStart(m) + DaysInMonth(m)) % 7
		if got := WeekdayOfMonthStart(m + 1); got != want {
			t.Errorf("WeekdayOfMonthStart(%d) = %d, want %d", m+1, got, want)
		}
	}

	// Pagume 1, 2018 EC is Sunday 2026-09-06.
	if got := WeekdayOfMonthStart(12); got != 0 {
		t.Errorf("WeekdayOfMonthStart(Pagume) = %d, want 0", got)
	}
}

func TestMonthIndex(t *testing.T) {
	for i, name := range MonthNames() {
		got, err := MonthIndex(name)
		if err != nil || got != i {
			t.Errorf("MonthIndex(%q) = %d, %v; want %d", name, got, err, i)
		}
	}

	// ህዳር is a common alternate spelling of ኅዳር; it must not match silently.
	if _, err := MonthIndex("ህዳር"); !errors.Is(err, ErrUnknownMonth) {
		t.Errorf("MonthIndex(alternate spelling) error = %v, want ErrUnknownMonth", err)
	}
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr error
	}{
		{"0", 0, nil},
		{"12", 12, nil},
		{" 4 ", 4, nil},
		{"ጥር", 4, nil},
		{"13", 0, ErrInvalidMonth},
		{"-1", 0, ErrInvalidMonth},
		{"Tir", 0, ErrUnknownMonth},
	}

	for _, tt := range tests {
		got, err := ParseMonth(tt.in)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseMonth(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseMonth(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
}

func TestParseMonth_ListsNames(t *testing.T) {
	_, err := ParseMonth("ህዳር")
	if !errors.Is(err, ErrUnknownMonth) {
		t.Fatalf("ParseMonth(alternate spelling) error = %v", err)
	}
	for _, name := range []string{"መስከረም", "ኅዳር", "ጳጉሜ"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not list %s", err, name)
		}
	}
}

func TestValidDate(t *testing.T) {
	tests := []struct {
		month, day int
		want       bool
	}{
		{0, 1, true},
		{0, 30, true},
		{0, 31, false},
		{0, 0, false},
		{12, 5, true},
		{12, 6, false},
		{13, 1, false},
		{-1, 1, false},
	}

	for _, tt := range tests {
		if got := ValidDate(tt.month, tt.day); got != tt.want {
			t.Errorf("ValidDate(%d, %d) = %v, want %v", tt.month, tt.day, got, tt.want)
		}
	}
}

func TestSourceDate_String(t *testing.T) {
	got, _ := CivilToSource(date(2025, time.September, 27))
	if s := got.String(); s != "መስከረም 17, 2018" {
		t.Errorf("String() = %q", s)
	}
}
