package protocol

import "fmt"

// Version is the compiled-in MPP protocol version. Both peers must agree
// on MAJOR.MINOR.PATCH; a mismatch on any component is a distinct 4xx.
type Version struct {
	Major, Minor, Patch int
}

// CurrentVersion is the version this build of the protocol speaks.
// VictorCarri/Malayalam-Programs's mpp/lib/hpp/mpp/ver.hpp pins 2.3.3.
var CurrentVersion = Version{Major: 2, Minor: 3, Patch: 3}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
