package session

import "encoding/json"

type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	// Client → server
	TypePointerDown = "pointer.down"
	TypePointerMove = "pointer.move"
	TypePointerUp   = "pointer.up"
	TypeRectSet     = "rect.set"
	TypeGridSet     = "grid.set"
	TypeHandleHit   = "handle.hit"

	// Server → client
	TypeWelcome = "welcome"
	TypeState   = "state"
	TypeHit     = "hit"
	TypeError   = "error"
)

type PointerDownPayload struct {
	Kind   string  `json:"kind"`
	Handle string  `json:"handle"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

type PointerPayload struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type RectSetPayload struct {
	OriginLat float64 `json:"originLat"`
	OriginLng float64 `json:"originLng"`
	ExtentX   float64 `json:"extentX"`
	ExtentY   float64 `json:"extentY"`
	Rotation  float64 `json:"rotation"`
}

type HandleHitPayload struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	ToleranceKm float64 `json:"toleranceKm"`
}

type WelcomePayload struct {
	SessionID string `json:"sessionId"`
}

type HitPayload struct {
	Handle string `json:"handle"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func newMessage(typ string, payload interface{}) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}
