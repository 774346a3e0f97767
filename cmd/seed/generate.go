package main

import (
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
)

// statusInProgress is the CRM status for complaints still being handled.
const statusInProgress domain.Status = "בטיפול"

type locality struct {
	name string
	base float64 // mean complaints per day at 22°C on a weekday
}

var localities = []locality{
	{"Kfar Vitkin", 6},
	{"Hofit", 4},
	{"Bat Hefer", 9},
	{"Mikhmoret", 3},
	{"Givat Shapira", 2},
	{"Ein HaHoresh", 3},
	{"Beit Yitzhak", 5},
	{"Hadar Am", 1.5},
}

type topic struct {
	name       string
	department string
	heat       float64 // weight multiplier per degree above 22°C
}

var topics = []topic{
	{"Water leak", "Water", 0.06},
	{"Sewage overflow", "Water", 0.04},
	{"Garbage collection", "Sanitation", 0.05},
	{"Pruning", "Sanitation", 0},
	{"Pothole", "Roads", -0.03},
	{"Street lighting", "Roads", -0.02},
	{"Noise", "Security", 0.02},
	{"Stray animals", "Veterinary", 0.01},
}

var departmentOrder = []string{"Water", "Sanitation", "Roads", "Security", "Veterinary"}

type generatorConfig struct {
	Start time.Time
	Days  int
	Seed  uint64
}

// generate produces a complaint history whose daily volume rises with
// temperature and drops on Friday and Saturday. The same config always
// produces the same complaints.
func generate(cfg generatorConfig) []domain.RawComplaint {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1))
	start := domain.DateOf(cfg.Start)
	last := start.AddDate(0, 0, cfg.Days-1)

	var out []domain.RawComplaint
	for d := range cfg.Days {
		day := start.AddDate(0, 0, d)
		temp := dailyTemperature(day, rng)
		cal := domain.CalendarOf(day)

		for _, l := range localities {
			rate := l.base * (1 + 0.04*(temp-22))
			if cal.IsWeekend {
				rate *= 0.6
			}
			n := poisson(rng, max(rate, 0))
			for range n {
				out = append(out, complaintOn(rng, l.name, day, last, temp))
			}
		}
	}
	return out
}

func complaintOn(rng *rand.Rand, settlement string, day, last time.Time, temp float64) domain.RawComplaint {
	t := pickTopic(rng, temp)
	duration := 1 + rng.IntN(20)
	exceeded := 0
	if duration > 14 {
		exceeded = 1
	}

	status := domain.StatusHandled
	switch age := int(last.Sub(day).Hours() / 24); {
	case age < 14 && rng.IntN(2) == 0:
		status = statusInProgress
	case rng.IntN(10) == 0:
		status = domain.StatusNoResponse
	}

	return domain.RawComplaint{
		Locality:                   domain.LooseString(settlement),
		OpenDate:                   domain.LooseString(day.Add(time.Duration(7+rng.IntN(12)) * time.Hour).Format(time.RFC3339)),
		Topic:                      domain.LooseString(t.name),
		Department:                 domain.LooseString(t.department),
		Status:                     status,
		Temperature:                domain.LooseString(strconv.FormatFloat(temp, 'f', 1, 64)),
		Duration:                   domain.LooseString(strconv.Itoa(duration)),
		ExceededDeadline:           domain.LooseInt(exceeded),
		ExceededDeadlinePercentage: domain.LooseInt(exceeded * (duration - 14) * 100 / 14),
	}
}

// dailyTemperature follows a coastal seasonal curve peaking in early August.
func dailyTemperature(day time.Time, rng *rand.Rand) float64 {
	phase := 2 * math.Pi * float64(day.YearDay()-125) / 365
	t := 21 + 7*math.Sin(phase) + rng.NormFloat64()*1.5
	return math.Round(t*10) / 10
}

func pickTopic(rng *rand.Rand, temp float64) topic {
	weights := make([]float64, len(topics))
	total := 0.0
	for i, t := range topics {
		weights[i] = max(0.05, 1+t.heat*(temp-22))
		total += weights[i]
	}
	r := rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return topics[i]
		}
		r -= w
	}
	return topics[len(topics)-1]
}

// poisson draws from a Poisson distribution by Knuth's method.
func poisson(rng *rand.Rand, lambda float64) int {
	l := math.Exp(-lambda)
	k, p := 0, 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}
