package validator

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airscout/internal/domain/entity"
)

var permitRules = PermitRules{
	ComplaintRadiusMeters: 200,
	ComplaintLookback:     48 * time.Hour,
	Expiry:                168 * time.Hour,
}

func demolitionPermit() entity.PermitRecord {
	return entity.PermitRecord{
		PermitNumber:    "100778555",
		PermitType:      "PERMIT - WRECKING/DEMOLITION",
		WorkDescription: "WRECK AND REMOVE 2 STORY BUILDING",
		Address:         "1234 W MADISON ST",
		Location:        orb.Point{-87.6650, 41.8815},
		IssueDate:       time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

// complaintAt builds a corroborating dust complaint offset north of the
// permit by roughly the given number of meters.
func complaintAt(id string, offsetMeters float64, createdAt time.Time) entity.ComplaintRecord {
	return entity.ComplaintRecord{
		ServiceRequestID: id,
		Code:             "SVR",
		Description:      "DUST FROM DEMOLITION SITE",
		Location:         orb.Point{-87.6650, 41.8815 + offsetMeters/111320.0},
		CreatedAt:        createdAt,
	}
}

func TestPermitValidatorRequiresCorroboration(t *testing.T) {
	v := NewPermitValidator(permitRules)
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no complaints at all", func(t *testing.T) {
		_, ok := v.Validate(demolitionPermit(), nil, now)
		assert.False(t, ok)
	})

	t.Run("complaint outside the radius", func(t *testing.T) {
		far := complaintAt("SR-1", 500, now.Add(-time.Hour))
		_, ok := v.Validate(demolitionPermit(), []entity.ComplaintRecord{far}, now)
		assert.False(t, ok)
	})

	t.Run("complaint older than the lookback", func(t *testing.T) {
		stale := complaintAt("SR-2", 50, now.Add(-72*time.Hour))
		_, ok := v.Validate(demolitionPermit(), []entity.ComplaintRecord{stale}, now)
		assert.False(t, ok)
	})

	t.Run("irrelevant complaint type", func(t *testing.T) {
		c := complaintAt("SR-3", 50, now.Add(-time.Hour))
		c.Code = "GRAF"
		c.Description = "GRAFFITI ON GARAGE"
		_, ok := v.Validate(demolitionPermit(), []entity.ComplaintRecord{c}, now)
		assert.False(t, ok)
	})

	t.Run("one nearby recent complaint validates", func(t *testing.T) {
		c := complaintAt("SR-4", 50, now.Add(-time.Hour))
		hazard, ok := v.Validate(demolitionPermit(), []entity.ComplaintRecord{c}, now)
		require.True(t, ok)

		assert.Equal(t, entity.HazardTypePermit, hazard.Source.Type)
		assert.Equal(t, "100778555", hazard.Source.NaturalID)
		assert.Equal(t, "PERMIT-100778555", hazard.Source.String())
		assert.Equal(t, 3, hazard.Severity)
		assert.Equal(t, "Active demolition at 1234 W MADISON ST", hazard.Description)
		assert.Equal(t, now.Add(168*time.Hour), hazard.ExpiresAt)
		assert.Equal(t, "SR-4", hazard.Metadata["validating_complaint"])
	})
}

func TestPermitValidatorSeverityEscalation(t *testing.T) {
	v := NewPermitValidator(permitRules)
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		complaints   int
		wantSeverity int
	}{
		{name: "single complaint stays moderate", complaints: 1, wantSeverity: 3},
		{name: "two complaints escalate", complaints: 2, wantSeverity: 4},
		{name: "four complaints still one step", complaints: 4, wantSeverity: 4},
		{name: "five complaints hit the cap", complaints: 5, wantSeverity: 5},
		{name: "nine complaints stay capped", complaints: 9, wantSeverity: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			complaints := make([]entity.ComplaintRecord, 0, tt.complaints)
			for i := 0; i < tt.complaints; i++ {
				complaints = append(complaints, complaintAt(
					"SR-"+string(rune('A'+i)), float64(20+i*10), now.Add(-time.Hour),
				))
			}

			hazard, ok := v.Validate(demolitionPermit(), complaints, now)
			require.True(t, ok)
			assert.Equal(t, tt.wantSeverity, hazard.Severity)
			assert.Equal(t, tt.complaints, hazard.Metadata["complaint_count"])
		})
	}
}

func TestPermitValidatorAttachesNearestComplaint(t *testing.T) {
	v := NewPermitValidator(permitRules)
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	complaints := []entity.ComplaintRecord{
		complaintAt("SR-FAR", 150, now.Add(-time.Hour)),
		complaintAt("SR-NEAR", 30, now.Add(-2*time.Hour)),
		complaintAt("SR-MID", 90, now.Add(-time.Hour)),
	}

	hazard, ok := v.Validate(demolitionPermit(), complaints, now)
	require.True(t, ok)

	assert.Equal(t, "SR-NEAR", hazard.Metadata["validating_complaint"])
	dist, isFloat := hazard.Metadata["distance_to_complaint_m"].(float64)
	require.True(t, isFloat)
	assert.InDelta(t, 30, dist, 2)
}

func TestRelevantComplaint(t *testing.T) {
	tests := []struct {
		name string
		code string
		desc string
		want bool
	}{
		{name: "svr code", code: "SVR", desc: "", want: true},
		{name: "noi code", code: "NOI", desc: "", want: true},
		{name: "lowercase code", code: "svr", desc: "", want: true},
		{name: "dust keyword", code: "XXX", desc: "heavy dust in the air", want: true},
		{name: "debris keyword", code: "XXX", desc: "Debris blocking sidewalk", want: true},
		{name: "unrelated", code: "GRAF", desc: "graffiti removal", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := entity.ComplaintRecord{Code: tt.code, Description: tt.desc}
			assert.Equal(t, tt.want, RelevantComplaint(c))
		})
	}
}
