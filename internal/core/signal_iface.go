package core

// Frame is one encoded server event, ready for the wire.
type Frame []byte

// SignalConnection abstracts the realtime transport of one connection.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
