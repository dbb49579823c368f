package model

import "time"

// FunnelStage tracks where a lead sits in the qualification funnel.
type FunnelStage string

const (
	StageDiscovered  FunnelStage = "discovered"
	StageQualified   FunnelStage = "qualified"
	StageInteresting FunnelStage = "interesting"
	StageContacted   FunnelStage = "contacted"
	StageDismissed   FunnelStage = "dismissed"
)

// ValidStage reports whether s is a known funnel stage.
func ValidStage(s FunnelStage) bool {
	switch s {
	case StageDiscovered, StageQualified, StageInteresting, StageContacted, StageDismissed:
		return true
	}
	return false
}

// Status is the human workflow state, independent of funnel stage.
type Status string

const (
	StatusNew       Status = "New"
	StatusStarred   Status = "Starred"
	StatusReviewed  Status = "Reviewed"
	StatusContacted Status = "Contacted"
	StatusPassed    Status = "Passed"
	StatusArchived  Status = "Archived"
)

// Statuses lists all valid workflow statuses, in review order.
var Statuses = []Status{StatusNew, StatusStarred, StatusReviewed, StatusContacted, StatusPassed, StatusArchived}

// ValidStatus reports whether s is a known workflow status.
func ValidStatus(s Status) bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// SourceType classifies where a lead was found.
type SourceType string

const (
	SourceListing     SourceType = "listing"
	SourceNews        SourceType = "news"
	SourceAuction     SourceType = "auction"
	SourceForeclosure SourceType = "foreclosure"
)

// VerificationResult records the outcome of the last verification pass.
type VerificationResult string

const (
	VerifyAvailable    VerificationResult = "available"
	VerifyNotAvailable VerificationResult = "not_available"
	VerifyInvalidURL   VerificationResult = "invalid_url"
	VerifyError        VerificationResult = "error"
)

// Lead is a real-estate opportunity discovered from one or more sources.
// The canonical URL is the natural dedup key: two leads whose URLs
// normalize to the same string are the same entity, merged on upsert.
type Lead struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Price       string `json:"price,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status"`
	Score       int    `json:"score"`

	// Vital stats, best-effort extracted.
	Acreage   *float64 `json:"acreage,omitempty"`
	BedCount  *int     `json:"bed_count,omitempty"`
	YearBuilt *int     `json:"year_built,omitempty"`

	// Logistics.
	NearestAirport   string `json:"nearest_airport,omitempty"`
	DriveTimeMinutes *int   `json:"drive_time_minutes,omitempty"`

	AISummary string `json:"ai_summary,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`

	// Funnel tracking.
	FunnelStage FunnelStage `json:"funnel_stage"`
	IsNew       bool        `json:"is_new"`

	// Verification metadata.
	VerificationResult VerificationResult `json:"verification_result,omitempty"`
	VerificationReason string             `json:"verification_reason,omitempty"`
	LastVerifiedAt     *time.Time         `json:"last_verified_at,omitempty"`
	SourceType         SourceType         `json:"source_type,omitempty"`

	// Discovery provenance.
	DiscoveredVia string `json:"discovered_via,omitempty"`
	SearchQuery   string `json:"search_query,omitempty"`

	// Feedback learning. DismissedPattern is collected for future
	// automatic filtering but not yet consumed by discovery.
	DismissedReason  string `json:"dismissed_reason,omitempty"`
	DismissedPattern string `json:"dismissed_pattern,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
