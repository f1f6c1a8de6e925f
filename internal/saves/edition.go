package saves

import (
	"fmt"
	"strings"
)

// Edition identifies which distribution of the game a save file belongs to.
type Edition int

const (
	// Steam is the Steam-distributed edition.
	Steam Edition = iota
	// Xbox is the Xbox / Microsoft Store edition.
	Xbox
)

// Editions lists both editions in a stable order.
var Editions = []Edition{Steam, Xbox}

// String returns the edition name as used in logs and the backup directory layout.
func (e Edition) String() string {
	switch e {
	case Steam:
		return "Steam"
	case Xbox:
		return "Xbox"
	default:
		return fmt.Sprintf("Edition(%d)", int(e))
	}
}

// Other returns the opposite edition, i.e. the sync destination for a change
// detected on e.
func (e Edition) Other() Edition {
	if e == Steam {
		return Xbox
	}
	return Steam
}

// ParseEdition converts an edition name back into an Edition. Matching is
// case-insensitive so catalog rows (canonical String() form) and flag values
// like "xbox" both parse.
func ParseEdition(s string) (Edition, error) {
	for _, e := range Editions {
		if strings.EqualFold(s, e.String()) {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown edition %q", s)
}
