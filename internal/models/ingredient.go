package models

// Ingredient is a catalog entry recipes reference with an amount.
type Ingredient struct {
	id              int64
	name            string
	measurementUnit string
}

// NewIngredient creates an [Ingredient] measured in unit.
func NewIngredient(name, unit string) *Ingredient {
	return &Ingredient{name: name, measurementUnit: unit}
}

func (i *Ingredient) ID() int64               { return i.id }
func (i *Ingredient) Name() string            { return i.name }
func (i *Ingredient) MeasurementUnit() string { return i.measurementUnit }

func (i *Ingredient) SetID(id int64)              { i.id = id }
func (i *Ingredient) SetName(name string)         { i.name = name }
func (i *Ingredient) SetMeasurementUnit(u string) { i.measurementUnit = u }

func (i *Ingredient) Validate() error {
	if err := requireText("name", i.name, MaxNameLength); err != nil {
		return err
	}
	return requireText("measurement_unit", i.measurementUnit, MaxNameLength)
}
