package main

import "github.com/nwncomm/nwnc/internal/resource"

// Resource-type ordinals, matching the well-known NWN2 closed type set
// (original_source/NWNUtilLib/BaseTypes.h) for the extensions this driver
// itself reads or writes; every other extension is left to the resource
// manager's own provider-supplied type table.
const (
	typeNSS resource.Type = 2009
	typeNCS resource.Type = 2010
	typeIFO resource.Type = 2014
	typeNDB resource.Type = 2064
	typeARE resource.Type = 2012
	typeMDB resource.Type = 4000
)

// extensionTable is the driver's default Type<->extension mapping, used
// both for the resource manager's demanded-temp-file naming
// (resource.ExtensionTable) and for the directory/zip providers' own
// extension-to-Type resolution during indexing. ARE/MDB are included
// for the ls-areas/ls-models verbs (listverbs.go) even though the
// compile path itself never reads either.
var extensionTable = resource.ExtensionTable{
	typeNSS: "nss",
	typeNCS: "ncs",
	typeIFO: "ifo",
	typeNDB: "ndb",
	typeARE: "are",
	typeMDB: "mdb",
}

// typeOfExtension is the inverse lookup extensionTable doesn't provide
// directly, needed by every provider that indexes by filename extension.
func typeOfExtension(ext string) (resource.Type, bool) {
	for t, e := range extensionTable {
		if e == ext {
			return t, true
		}
	}
	return 0, false
}
