package domain

import "time"

// AssetType enumerates facility equipment classes.
type AssetType string

const (
	AssetTypeGenset          AssetType = "genset"
	AssetTypeAHU             AssetType = "ahu"
	AssetTypeIAC             AssetType = "iac"
	AssetTypeBattery         AssetType = "battery"
	AssetTypeGRPTank         AssetType = "grp_tank"
	AssetTypePump            AssetType = "pump"
	AssetTypeROPlant         AssetType = "ro_plant"
	AssetTypeFireSuppression AssetType = "fire_suppression"
	AssetTypeOther           AssetType = "other"
)

// Asset is a serviceable piece of facility equipment.
type Asset struct {
	ID                  string
	Name                string
	Type                AssetType
	Location            string
	SerialNumber        *string
	LastMaintenanceDate *time.Time
	CreatedAt           time.Time
}
