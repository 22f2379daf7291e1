package types

// RGB is one LED color. Channels are 0..255.
type RGB struct {
	R, G, B uint8
}
