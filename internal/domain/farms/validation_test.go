package farms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "animals.0.years", fieldPath("CreateFarmInput.animals[0].years"))
	assert.Equal(t, "email", fieldPath("UpdateFarmInput.email"))
}

func TestValidateInput_Animal(t *testing.T) {
	err := validateInput(CreateAnimalInput{FarmID: "f1", AnimalNumber: "12", TypeName: "Cow", Years: intPtr(0)})
	assert.NoError(t, err)

	err = validateInput(CreateAnimalInput{AnimalNumber: "abc", TypeName: "Cow", Years: intPtr(-1)})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "The farm id field is required.", verrs["farm_id"])
	assert.Equal(t, "The animal number must be a number.", verrs["animal_number"])
	assert.Equal(t, "The years must be at least 0.", verrs["years"])

	err = validateInput(CreateAnimalInput{FarmID: "f1", AnimalNumber: "1", TypeName: "Cow", Years: intPtr(21)})
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "The years may not be greater than 20.", verrs["years"])
}

func TestValidateInput_YearsOptional(t *testing.T) {
	assert.NoError(t, validateInput(UpdateAnimalInput{FarmID: "f1", AnimalNumber: "1", TypeName: "Pig"}))
}

func TestNormalized_LowercasesEmail(t *testing.T) {
	in := CreateFarmInput{Name: "  Sunny ", Email: " Sunny@Farm.TEST ", Animals: []AnimalInput{{AnimalNumber: " 7 ", TypeName: " Cow "}}}.normalized()
	assert.Equal(t, "Sunny", in.Name)
	assert.Equal(t, "sunny@farm.test", in.Email)
	assert.Equal(t, "7", in.Animals[0].AnimalNumber)
	assert.Equal(t, "Cow", in.Animals[0].TypeName)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "capacity", outcome(&CapacityError{FarmID: "f"}))
	assert.Equal(t, "duplicate", outcome(&DuplicateKeyError{Field: "email"}))
	assert.Equal(t, "invalid", outcome(ErrEmptyRoster))
	assert.Equal(t, "error", outcome(classify(assert.AnError)))
}
