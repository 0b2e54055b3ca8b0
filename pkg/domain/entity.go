package domain

// EntityClass categorizes a molecular species.
type EntityClass string

const (
	ClassVirion  EntityClass = "virion"
	ClassRNA     EntityClass = "rna"
	ClassDNA     EntityClass = "dna"
	ClassProtein EntityClass = "protein"
	ClassComplex EntityClass = "complex"
	// ClassUnknown is reported for entities referenced by rules but absent
	// from the reference database. Such names remain valid identifiers.
	ClassUnknown EntityClass = "unknown"
)

// KnownClasses lists the classes a database entity may declare, in display order.
var KnownClasses = []EntityClass{ClassVirion, ClassRNA, ClassDNA, ClassProtein, ClassComplex}

// Location identifies the cellular compartment an entity occupies.
type Location string

const (
	LocationExtracellular Location = "extracellular"
	LocationMembrane      Location = "membrane"
	LocationEndosome      Location = "endosome"
	LocationCytoplasm     Location = "cytoplasm"
	LocationNucleus       Location = "nucleus"
	LocationUnknown       Location = "unknown"
)

// KnownLocations lists valid compartments ordered from cell exterior inward.
var KnownLocations = []Location{LocationExtracellular, LocationMembrane, LocationEndosome, LocationCytoplasm, LocationNucleus}

// EntityDefinition is static reference data describing one molecular species.
type EntityDefinition struct {
	Name     string      `json:"name"`
	Class    EntityClass `json:"entity_class"`
	Location Location    `json:"location"`
}

// ValidClass reports whether c is one of the declared entity classes.
func ValidClass(c EntityClass) bool {
	for _, known := range KnownClasses {
		if c == known {
			return true
		}
	}
	return false
}

// ValidLocation reports whether l is one of the declared compartments.
func ValidLocation(l Location) bool {
	for _, known := range KnownLocations {
		if l == known {
			return true
		}
	}
	return false
}
