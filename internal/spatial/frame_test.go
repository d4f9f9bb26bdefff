package spatial

import (
	"math"
	"testing"
)

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lon1      float64
		lat2      float64
		lon2      float64
		expected  float64
		tolerance float64
	}{
		{
			name: "same point",
			lat1: -30.5, lon1: 121.4,
			lat2: -30.5, lon2: 121.4,
			expected:  0,
			tolerance: 1e-9,
		},
		{
			name: "one degree of latitude",
			lat1: 0, lon1: 0,
			lat2: 1, lon2: 0,
			// One degree of arc on the mean sphere is about 111.2 km.
			expected:  111195,
			tolerance: 100,
		},
		{
			name: "one degree of longitude at 60 south",
			lat1: -60, lon1: 120,
			lat2: -60, lon2: 121,
			// Meridians converge toward the poles: cos(60) scales it.
			expected:  55597,
			tolerance: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.expected) > tt.tolerance {
				t.Errorf("HaversineDistance = %g, want %g ± %g", got, tt.expected, tt.tolerance)
			}
		})
	}
}

func TestLocalFrame_Offset(t *testing.T) {
	frame := NewLocalFrame(-30.5, 121.4)

	t.Run("origin maps to zero", func(t *testing.T) {
		east, north := frame.Offset(-30.5, 121.4)
		if east != 0 || north != 0 {
			t.Errorf("Expected (0, 0), got (%g, %g)", east, north)
		}
	})

	t.Run("north of origin is positive north", func(t *testing.T) {
		_, north := frame.Offset(-30.4, 121.4)
		if north <= 0 {
			t.Errorf("Expected positive north, got %g", north)
		}
	})

	t.Run("south of origin is negative north", func(t *testing.T) {
		_, north := frame.Offset(-30.6, 121.4)
		if north >= 0 {
			t.Errorf("Expected negative north, got %g", north)
		}
	})

	t.Run("east of origin is positive east", func(t *testing.T) {
		east, _ := frame.Offset(-30.5, 121.5)
		if east <= 0 {
			t.Errorf("Expected positive east, got %g", east)
		}
	})

	t.Run("west of origin is negative east", func(t *testing.T) {
		east, _ := frame.Offset(-30.5, 121.3)
		if east >= 0 {
			t.Errorf("Expected negative east, got %g", east)
		}
	})

	t.Run("offsets are symmetric around the origin", func(t *testing.T) {
		eastPlus, _ := frame.Offset(-30.5, 121.5)
		eastMinus, _ := frame.Offset(-30.5, 121.3)
		if math.Abs(eastPlus+eastMinus) > 1e-6 {
			t.Errorf("Expected symmetric east offsets, got %g and %g", eastPlus, eastMinus)
		}
	})

	t.Run("small offsets are deposit-scale meters", func(t *testing.T) {
		// 0.001 degrees of latitude is about 111 m.
		_, north := frame.Offset(-30.499, 121.4)
		if north < 100 || north > 125 {
			t.Errorf("Expected roughly 111 m, got %g", north)
		}
	})
}
