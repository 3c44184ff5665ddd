package models

// Room holds the scalar fields of a collaboration room. Membership, stroke
// history and the canvas snapshot are owned by the store and exposed through
// dedicated store methods rather than carried on every lookup.
type Room struct {
	Code         string
	PasswordHash string
	CreatedAt    int64
	LastActive   int64
}

// HasPassword reports whether joining the room requires password verification.
func (r Room) HasPassword() bool {
	return r.PasswordHash != ""
}

type Member struct {
	MemberID    string `json:"memberId"`
	SocketID    string `json:"-"`
	ClientID    string `json:"clientId"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
	IsHost      bool   `json:"isHost"`
	JoinedAt    int64  `json:"joinedAt"`
	Status      string `json:"status"`
	LastSeen    int64  `json:"-"`
}

// MemberSnapshot is the broadcast-safe projection of a Member. It never
// carries the socket id or last-seen timestamp.
type MemberSnapshot struct {
	MemberID    string `json:"memberId"`
	ClientID    string `json:"clientId"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
	IsHost      bool   `json:"isHost"`
	JoinedAt    int64  `json:"joinedAt"`
	Status      string `json:"status"`
}

// Snapshot returns the member's broadcast-safe projection.
func (m Member) Snapshot() MemberSnapshot {
	return MemberSnapshot{
		MemberID:    m.MemberID,
		ClientID:    m.ClientID,
		DisplayName: m.DisplayName,
		Avatar:      m.Avatar,
		IsHost:      m.IsHost,
		JoinedAt:    m.JoinedAt,
		Status:      m.Status,
	}
}

const StatusOnline = "online"

type Point struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pressure float64 `json:"pressure"`
}

type Stroke struct {
	ID        string  `json:"id"`
	Tool      string  `json:"tool"`
	Color     string  `json:"color"`
	Width     float64 `json:"width"`
	Points    []Point `json:"points"`
	CreatedAt int64   `json:"createdAt"`
}

const (
	ToolPen    = "pen"
	ToolEraser = "eraser"
)

type SnapshotKind int

const (
	SnapshotNone SnapshotKind = iota
	// SnapshotStructured is a JSON blob of canvas state.
	SnapshotStructured
	// SnapshotRaster is a data:image/... URL fallback.
	SnapshotRaster
)

// CanvasSnapshot is the compacted recovery state of a room's canvas. A
// structured snapshot is invalidated by undo; a raster one is kept as-is.
type CanvasSnapshot struct {
	Kind SnapshotKind
	Data []byte
}

func (s CanvasSnapshot) IsZero() bool {
	return s.Kind == SnapshotNone
}
