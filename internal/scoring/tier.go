package scoring

// Tier is the named maturity band a composite score falls into.
type Tier string

const (
	Seedling   Tier = "Seedling"
	Sprout     Tier = "Sprout"
	Developing Tier = "Developing"
	Mature     Tier = "Mature"
	Leader     Tier = "Leader"
)

type band struct {
	floor int
	tier  Tier
}

// Bands are lower-inclusive, upper-exclusive; the final band includes 100.
var bands = []band{
	{90, Leader},
	{70, Mature},
	{50, Developing},
	{30, Sprout},
	{0, Seedling},
}

// TierFor maps a composite score onto its maturity band. Scores outside
// [0,100] are clamped rather than rejected.
func TierFor(composite int) Tier {
	for _, b := range bands {
		if composite >= b.floor {
			return b.tier
		}
	}
	return Seedling
}
