package domain

// SacramentType is the id of a row in the tipos_sacramento catalog. The ids
// below are fixed by convention and seeded by the initial migration.
type SacramentType int64

const (
	SacramentBaptism      SacramentType = 1
	SacramentConfirmation SacramentType = 2
	SacramentMarriage     SacramentType = 3
	SacramentDeath        SacramentType = 4
)

var sacramentTypeNames = map[SacramentType]string{
	SacramentBaptism:      "Bautismo",
	SacramentConfirmation: "Confirmación",
	SacramentMarriage:     "Matrimonio",
	SacramentDeath:        "Defunción",
}

func (t SacramentType) IsValid() bool {
	_, ok := sacramentTypeNames[t]
	return ok
}

// DisplayName returns the catalog name, or "" for unknown ids.
func (t SacramentType) DisplayName() string {
	return sacramentTypeNames[t]
}
