package datetime

import (
	"testing"
)

func TestMustParseTime(t *testing.T) {
	tests := []struct {
		name     string
		layout   string
		dateStr  string
		expected string
	}{
		{
			name:     "Valid date",
			layout:   DateTimeLayout,
			dateStr:  "2025-01",
			expected: "2025-01",
		},
		{
			name:     "Another valid date",
			layout:   DateTimeLayout,
			dateStr:  "2030-12",
			expected: "2030-12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MustParseTime(tt.layout, tt.dateStr)
			if result.Format(tt.layout) != tt.expected {
				t.Errorf("MustParseTime() = %s, expected %s", result.Format(tt.layout), tt.expected)
			}
		})
	}
}

func TestMustParseTimePanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected MustParseTime to panic with invalid date")
		}
	}()

	MustParseTime(DateTimeLayout, "invalid-date")
}

func TestOffsetDateAdvanced(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		layout   string
		months   int
		expected string
		wantErr  bool
	}{
		{
			name:     "Add multiple years",
			date:     "2025-01",
			layout:   DateTimeLayout,
			months:   24,
			expected: "2027-01",
			wantErr:  false,
		},
		{
			name:     "Subtract multiple years",
			date:     "2025-01",
			layout:   DateTimeLayout,
			months:   -24,
			expected: "2023-01",
			wantErr:  false,
		},
		{
			name:     "Cross year boundary forward",
			date:     "2025-06",
			layout:   DateTimeLayout,
			months:   8,
			expected: "2026-02",
			wantErr:  false,
		},
		{
			name:     "Cross year boundary backward",
			date:     "2025-06",
			layout:   DateTimeLayout,
			months:   -8,
			expected: "2024-10",
			wantErr:  false,
		},
		{
			name:     "Zero months",
			date:     "2025-06",
			layout:   DateTimeLayout,
			months:   0,
			expected: "2025-06",
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := OffsetDate(tt.date, tt.layout, tt.months)
			if tt.wantErr {
				if err == nil {
					t.Errorf("OffsetDate() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("OffsetDate() error = %v", err)
				return
			}
			if result != tt.expected {
				t.Errorf("OffsetDate() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestDateBeforeDateAdvanced(t *testing.T) {
	tests := []struct {
		name       string
		firstDate  string
		secondDate string
		expected   bool
		wantErr    bool
	}{
		{
			name:       "Different years",
			firstDate:  "2024-12",
			secondDate: "2025-01",
			expected:   true,
			wantErr:    false,
		},
		{
			name:       "Same year different months",
			firstDate:  "2025-01",
			secondDate: "2025-06",
			expected:   true,
			wantErr:    false,
		},
		{
			name:       "Reverse order",
			firstDate:  "2025-06",
			secondDate: "2025-01",
			expected:   false,
			wantErr:    false,
		},
		{
			name:       "Equal dates",
			firstDate:  "2025-06",
			secondDate: "2025-06",
			expected:   false,
			wantErr:    false,
		},
		{
			name:       "Large time difference",
			firstDate:  "2020-01",
			secondDate: "2030-12",
			expected:   true,
			wantErr:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := DateBeforeDate(tt.firstDate, tt.secondDate)
			if tt.wantErr {
				if err == nil {
					t.Errorf("DateBeforeDate() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("DateBeforeDate() error = %v", err)
				return
			}
			if result != tt.expected {
				t.Errorf("DateBeforeDate() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestDateTimeLayoutConstant(t *testing.T) {
	// Test that our constant matches the format expected
	testDate := "2025-06"
	parsedTime := MustParseTime(DateTimeLayout, testDate)

	if parsedTime.Format(DateTimeLayout) != testDate {
		t.Errorf("DateTimeLayout constant doesn't work correctly for parsing/formatting")
	}
}

func TestTimeOperations(t *testing.T) {
	// Test various time operations work correctly with our layout
	baseDate := "2025-01"

	// Test forward operations
	future, err := OffsetDate(baseDate, DateTimeLayout, 6)
	if err != nil {
		t.Fatalf("OffsetDate forward failed: %v", err)
	}

	// Test backward operations
	past, err := OffsetDate(future, DateTimeLayout, -6)
	if err != nil {
		t.Fatalf("OffsetDate backward failed: %v", err)
	}

	if past != baseDate {
		t.Errorf("Round trip date operation failed: started with %s, ended with %s", baseDate, past)
	}
}

func TestParseFlexible(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "ISO day", input: "2031-05-20", expected: "2031-05-20"},
		{name: "Slash day first", input: "20/05/2031", expected: "2031-05-20"},
		{name: "Dotted day first", input: "20.05.2031", expected: "2031-05-20"},
		{name: "Month only", input: "2031-05", expected: "2031-05-01"},
		{name: "Surrounding spaces", input: " 2031-05-20 ", expected: "2031-05-20"},
		{name: "Empty", input: "", wantErr: true},
		{name: "Garbage", input: "next year", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseFlexible(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseFlexible(%q) expected error but got none", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseFlexible(%q) error = %v", tt.input, err)
				return
			}
			if result.Format("2006-01-02") != tt.expected {
				t.Errorf("ParseFlexible(%q) = %s, expected %s", tt.input, result.Format("2006-01-02"), tt.expected)
			}
		})
	}
}

func TestCurrentMonth(t *testing.T) {
	ts := MustParseTime("2006-01-02", "2026-10-19")
	if got := CurrentMonth(ts); got != "2026-10" {
		t.Errorf("CurrentMonth() = %s, expected 2026-10", got)
	}
}
