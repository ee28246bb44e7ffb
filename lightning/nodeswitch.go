package lightning

import "errors"

// ErrNoClient is returned when a NodeSwitch has no candidate Lightning
// client able to serve a request.
var ErrNoClient = errors.New("lightning: no candidate node available")

// NodeSwitch selects the Lightning client appropriate for a given swap
// from a currency's configured candidates (spec.md §4.6/GLOSSARY).
type NodeSwitch interface {
	// GetNode picks a client by name if preferredNode is non-empty and
	// present among candidates, otherwise returns the first candidate.
	GetNode(candidates []Client, preferredNode string) (Client, error)
}

// defaultNodeSwitch is the straightforward NodeSwitch: prefer an exact
// name match, otherwise fall back to the first configured client. Real
// deployments may substitute a NodeSwitch that additionally consults
// channel liquidity or policy, but that selection logic is out of scope
// here (spec.md §1).
type defaultNodeSwitch struct{}

// NewDefaultNodeSwitch returns the name-preference NodeSwitch.
func NewDefaultNodeSwitch() NodeSwitch {
	return defaultNodeSwitch{}
}

func (defaultNodeSwitch) GetNode(candidates []Client, preferredNode string) (Client, error) {
	if len(candidates) == 0 {
		return nil, ErrNoClient
	}

	if preferredNode != "" {
		for _, c := range candidates {
			if c.Name() == preferredNode {
				return c, nil
			}
		}
	}

	return candidates[0], nil
}
