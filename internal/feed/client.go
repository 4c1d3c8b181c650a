package feed

const clientBuffer = 32

// Client is a connection subscribed to zero or more channels.
type Client struct {
	ID     string
	UserID string
	Events chan *Event
	rooms  map[string]struct{}
}

// NewClient constructs a client with an initialized event channel.
func NewClient(id, userID string) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		Events: make(chan *Event, clientBuffer),
		rooms:  make(map[string]struct{}),
	}
}
