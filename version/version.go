package version

// VERSION is the released version of canmsggen
var VERSION = "0.2.0"
