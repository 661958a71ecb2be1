package api

// ChatTurn is one entry of the history sent with a stateless chat message.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatSession struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	CheckInID     *int64  `json:"checkin_id"`
	MoodAtStart   *string `json:"mood_at_start,omitempty"`
	StressAtStart *int    `json:"stress_at_start,omitempty"`
	CreatedAt     string  `json:"created_at,omitempty"`
}

// NewChatSession is the create payload; zero fields are left out.
type NewChatSession struct {
	Title     string `json:"title,omitempty"`
	CheckInID *int64 `json:"checkin_id,omitempty"`
}

type ChatMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at,omitempty"`
}

type OKResult struct {
	OK bool `json:"ok"`
}

type NewCheckIn struct {
	Mood        string `json:"mood"`
	StressLevel int    `json:"stress_level"`
	Notes       string `json:"notes,omitempty"`
}

type CheckInCreated struct {
	OK bool  `json:"ok"`
	ID int64 `json:"id"`
}

type CheckIn struct {
	ID          int64  `json:"id"`
	Mood        string `json:"mood"`
	StressLevel int    `json:"stress_level"`
	Notes       string `json:"notes"`
	CreatedAt   string `json:"created_at"`
}

// CheckInTrends is the per-day aggregate returned by /analytics/checkins.
type CheckInTrends struct {
	Range struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"range"`
	Buckets []TrendBucket  `json:"buckets"`
	Moods   map[string]int `json:"moods"`
}

type TrendBucket struct {
	Date      string   `json:"date"`
	Count     int      `json:"count"`
	AvgStress *float64 `json:"avg_stress"`
}

type Resource struct {
	Title string `json:"title"`
	Desc  string `json:"desc"`
	URL   string `json:"url"`
}

type Counselor struct {
	ID          int64  `json:"id"`
	FullName    string `json:"full_name"`
	Bio         string `json:"bio"`
	Specialties string `json:"specialties"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency"`
}

type Slot struct {
	ID        int64  `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type BookingRequest struct {
	CounselorID int64 `json:"counselor_id"`
	SlotID      int64 `json:"slot_id"`
}

type Booking struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
	Counselor struct {
		ID       int64  `json:"id"`
		FullName string `json:"full_name"`
	} `json:"counselor"`
	Slot Slot `json:"slot"`
}

type AnalyticsOverview struct {
	SessionsCount int64            `json:"sessions_count"`
	MessagesCount int64            `json:"messages_count"`
	CheckInsCount int64            `json:"checkins_count"`
	LastCheckIn   *CheckInSnapshot `json:"last_checkin"`
}

type CheckInSnapshot struct {
	Mood        string `json:"mood"`
	StressLevel int    `json:"stress_level"`
	CreatedAt   string `json:"created_at"`
}

type UpgradeResult struct {
	OK   bool   `json:"ok"`
	Plan string `json:"plan"`
}
