package main

// Attribute keys used in GuessRecord differences. The consuming UI keys
// its result grid off these values, so they are part of the wire contract.
const (
	attrName      = "name"
	attrAgency    = "agency"
	attrGender    = "gender"
	attrBirthday  = "birthday"
	attrDebut     = "debut"
	attrHeight    = "height"
	attrAge       = "age"
	attrStatus    = "status"
	attrHairColor = "hair_color"
	attrEyeColor  = "eye_color"
	attrZodiac    = "zodiac"
	attrTag       = "tag"
)

// Ordinal attributes additionally carry a hint pointing at the target.
const (
	hintHigher = "higher"
	hintLower  = "lower"
	hintEqual  = "equal"
)

// Difference is one attribute-level comparison result.
type Difference struct {
	Attribute string `json:"attribute"`
	Value     any    `json:"value"`
	IsMatch   bool   `json:"isMatch"`
	Hint      string `json:"hint,omitempty"`
}

// GuessRecord is the immutable outcome of comparing one guess against
// the hidden target. Records are appended newest-first to Room.Records.
type GuessRecord struct {
	User        *User        `json:"user"`
	IsCorrect   bool         `json:"isCorrect"`
	Name        string       `json:"name"`
	NameMatch   []bool       `json:"nameMatch"`
	Differences []Difference `json:"differences"`
}

func stringDiff(attribute, guess, target string) Difference {
	return Difference{
		Attribute: attribute,
		Value:     guess,
		IsMatch:   guess == target,
	}
}

func ordinalDiff(attribute string, value any, guess, target int) Difference {
	d := Difference{
		Attribute: attribute,
		Value:     value,
		IsMatch:   guess == target,
		Hint:      hintEqual,
	}
	switch {
	case target > guess:
		d.Hint = hintHigher
	case target < guess:
		d.Hint = hintLower
	}
	return d
}

// checkGuess compares a guess against the hidden target and produces the
// per-attribute diff shown to both players. Pure and deterministic.
func checkGuess(user *User, guess, target *VTuber) GuessRecord {
	nameMatch := make([]bool, 0, len(guess.Name))
	targetRunes := []rune(target.Name)
	for i, r := range []rune(guess.Name) {
		nameMatch = append(nameMatch, i < len(targetRunes) && targetRunes[i] == r)
	}

	differences := []Difference{
		stringDiff(attrName, guess.Name, target.Name),
		stringDiff(attrAgency, guess.Agency, target.Agency),
		stringDiff(attrGender, guess.Gender, target.Gender),
		ordinalDiff(attrBirthday, guess.BirthDate, birthDateKey(guess.BirthDate), birthDateKey(target.BirthDate)),
		ordinalDiff(attrDebut, guess.DebutDate, debutDateKey(guess.DebutDate), debutDateKey(target.DebutDate)),
		ordinalDiff(attrHeight, guess.Height, guess.Height, target.Height),
		ordinalDiff(attrAge, guess.Age, guess.Age, target.Age),
		stringDiff(attrStatus, guess.Status, target.Status),
		stringDiff(attrHairColor, guess.HairColor, target.HairColor),
		stringDiff(attrEyeColor, guess.EyeColor, target.EyeColor),
		stringDiff(attrZodiac, guess.Zodiac, target.Zodiac),
	}

	// Tags are evaluated one by one against the target's tag set, not as
	// a set equality.
	for _, tag := range guess.Tags {
		differences = append(differences, Difference{
			Attribute: attrTag,
			Value:     tag,
			IsMatch:   target.HasTag(tag),
		})
	}

	return GuessRecord{
		User:        user,
		IsCorrect:   guess.ID == target.ID,
		Name:        guess.Name,
		NameMatch:   nameMatch,
		Differences: differences,
	}
}
