package vocab

// builtinEntries is the static clinical vocabulary shipped with the binary.
// The misrecognition lists were collected from real whisper output on
// psychiatric dictation recordings; they are data, not logic — extend them
// freely without touching the correction engine.
var builtinEntries = []Entry{
	// --- Medications -----------------------------------------------------

	{
		Canonical:       "sertraline",
		Aliases:         []string{"Zoloft"},
		Misrecognitions: []string{"sertralene", "surtraline", "certralean", "sertralin", "zertraline", "surgery line"},
		Category:        CategoryMedication,
	},
	{
		Canonical:       "fluoxetine",
		Aliases:         []string{"Prozac"},
		Misrecognitions: []string{"fluoxitine", "fluoxetene", "fluoxetin", "fluoxeteen", "prozak"},
		Category:        CategoryMedication,
	},
	{
		Canonical:       "escitalopram",
		Aliases:         []string{"Lexapro"},
		Misrecognitions: []string{"escitaloprem", "s-citalopram", "escitalopran"},
		Category:        CategoryMedication,
	},
	{
		Canonical:       "mirtazapine",
		Aliases:         []string{"Remeron"},
		Misrecognitions: []string{"mirtazapin", "metasopene", "tumour tazepine"},
		Category:        CategoryMedication,
	},
	{
		Canonical:       "aripiprazole",
		Aliases:         []string{"Abilify"},
		Misrecognitions: []string{"aripiprazol", "arypiprazol", "abilifi", "area pippula"},
		Category:        CategoryMedication,
	},
	{
		Canonical:       "atomoxetine",
		Aliases:         []string{"Strattera"},
		Misrecognitions: []string{"atomoxetin", "at-emoxeteen"},
		Category:        CategoryMedication,
	},
	{
		Canonical:       "alprazolam",
		Aliases:         []string{"Xanax"},
		Misrecognitions: []string{"alprazolim", "l-prasilum"},
		Category:        CategoryMedication,
	},
	{
		Canonical:       "trazodone",
		Misrecognitions: []string{"trasodone", "trazadone"},
		Category:        CategoryMedication,
	},
	{
		Canonical:       "prazosin",
		Misrecognitions: []string{"prazes in", "prasas in", "prazocin"},
		Category:        CategoryMedication,
	},
	{
		Canonical:       "donepezil",
		Aliases:         []string{"Aricept"},
		Misrecognitions: []string{"denepazol", "nepazel"},
		Category:        CategoryMedication,
	},
	{
		Canonical:       "bupropion",
		Aliases:         []string{"Wellbutrin"},
		Misrecognitions: []string{"bupropian", "bipropion", "bupropin"},
		Category:        CategoryMedication,
	},
	{
		Canonical:       "quetiapine",
		Aliases:         []string{"Seroquel"},
		Misrecognitions: []string{"quetiapin", "quisiopine", "quesia peen"},
		Category:        CategoryMedication,
	},
	{
		Canonical:       "divalproex",
		Aliases:         []string{"Depakote"},
		Misrecognitions: []string{"divalprog", "devil proxodium"},
		Category:        CategoryMedication,
	},
	{
		Canonical:       "clonazepam",
		Aliases:         []string{"Klonopin"},
		Misrecognitions: []string{"clonazepen", "clonazapam"},
		Category:        CategoryMedication,
	},
	{
		Canonical:       "duloxetine",
		Aliases:         []string{"Cymbalta"},
		Misrecognitions: []string{"duloxetin", "duoxeteen"},
		Category:        CategoryMedication,
	},
	{
		Canonical:       "lamotrigine",
		Aliases:         []string{"Lamictal"},
		Misrecognitions: []string{"lamotrigin", "limotrigine"},
		Category:        CategoryMedication,
	},
	{
		Canonical:       "gabapentin",
		Aliases:         []string{"Neurontin"},
		Misrecognitions: []string{"gabapenten", "gabapentine"},
		Category:        CategoryMedication,
	},
	{
		Canonical: "lithium",
		Category:  CategoryMedication,
	},
	{
		Canonical:       "buspirone",
		Aliases:         []string{"Buspar"},
		Misrecognitions: []string{"busperone", "buspiron"},
		Category:        CategoryMedication,
	},
	{
		Canonical:       "ziprasidone",
		Aliases:         []string{"Geodon"},
		Misrecognitions: []string{"ziprasidon"},
		Category:        CategoryMedication,
	},

	// --- Dosage units ----------------------------------------------------

	{
		Canonical:       "mg",
		Misrecognitions: []string{"mgs", "mg's", "milligram", "milligrams"},
		Category:        CategoryDosageUnit,
	},
	{
		Canonical:       "mcg",
		Misrecognitions: []string{"mcgs", "microgram", "micrograms"},
		Category:        CategoryDosageUnit,
	},
	{
		Canonical:       "ml",
		Misrecognitions: []string{"mls", "milliliter", "milliliters", "millilitre", "millilitres"},
		Category:        CategoryDosageUnit,
	},

	// --- Clinical abbreviations ------------------------------------------

	{
		Canonical:       "PRN",
		Aliases:         []string{"as needed"},
		Misrecognitions: []string{"p r n", "pee are en"},
		Category:        CategoryAbbreviation,
	},
	{
		Canonical:       "BID",
		Aliases:         []string{"twice daily"},
		Misrecognitions: []string{"b i d"},
		Category:        CategoryAbbreviation,
	},
	{
		Canonical:       "TID",
		Aliases:         []string{"three times daily"},
		Misrecognitions: []string{"t i d"},
		Category:        CategoryAbbreviation,
	},
	{
		Canonical:       "QHS",
		Aliases:         []string{"at bedtime"},
		Misrecognitions: []string{"q h s", "cue h s"},
		Category:        CategoryAbbreviation,
	},
	{
		Canonical:       "PTSD",
		Misrecognitions: []string{"p t s d"},
		Category:        CategoryAbbreviation,
	},
	{
		Canonical:       "ADHD",
		Misrecognitions: []string{"a d h d"},
		Category:        CategoryAbbreviation,
	},
	{
		Canonical:       "GAD",
		Aliases:         []string{"generalized anxiety disorder"},
		Category:        CategoryAbbreviation,
	},
	{
		Canonical:       "MDD",
		Aliases:         []string{"major depressive disorder"},
		Category:        CategoryAbbreviation,
	},
	{
		Canonical:       "OCD",
		Aliases:         []string{"obsessive compulsive disorder"},
		Category:        CategoryAbbreviation,
	},
}
