package entity

// Player is a persistent identity: it survives the connection that created it,
// so a client may reconnect with the same ID and keep its name.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}
