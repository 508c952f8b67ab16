package enums

import "slices"

// InventoryCategory classifies stock-keeping items.
type InventoryCategory string

const (
	InventoryCategoryMedication       InventoryCategory = "medication"
	InventoryCategoryMedicalEquipment InventoryCategory = "medical_equipment"
	InventoryCategoryMedicalDevices   InventoryCategory = "medical_devices"
	InventoryCategorySupplies         InventoryCategory = "supplies"
	InventoryCategoryConsumables      InventoryCategory = "consumables"
	InventoryCategoryLaboratory       InventoryCategory = "laboratory"
	InventoryCategorySurgical         InventoryCategory = "surgical"
	InventoryCategoryPersonalCare     InventoryCategory = "personal_care"
)

var validInventoryCategories = []InventoryCategory{
	InventoryCategoryMedication,
	InventoryCategoryMedicalEquipment,
	InventoryCategoryMedicalDevices,
	InventoryCategorySupplies,
	InventoryCategoryConsumables,
	InventoryCategoryLaboratory,
	InventoryCategorySurgical,
	InventoryCategoryPersonalCare,
}

func (c InventoryCategory) String() string {
	return string(c)
}

func (c InventoryCategory) IsValid() bool {
	return slices.Contains(validInventoryCategories, c)
}

// IsRestricted reports whether non-admins may only order the category on a
// prescription order.
func (c InventoryCategory) IsRestricted() bool {
	return c == InventoryCategoryMedication || c == InventoryCategoryMedicalEquipment
}

// ParseInventoryCategory converts raw input into an InventoryCategory.
func ParseInventoryCategory(value string) (InventoryCategory, error) {
	return parse("inventory category", validInventoryCategories, value)
}
