package filter

import (
	"maps"
	"math"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/odp-liege/liege"
)

const earthRadiusKm = 6371.0

// Filter is a compiled boolean expression over garages and disabled parkings
type Filter struct {
	expression string
	program    *vm.Program
	helpers    map[string]any
}

// CompilerOption configures a Compiler
type CompilerOption func(*Compiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) CompilerOption {
	return func(c *Compiler) {
		if size > 0 {
			c.cache = newLRUCache[string, *Filter](size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) CompilerOption {
	return func(c *Compiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// Compiler turns expressions into Filters
type Compiler struct {
	helperFuncs map[string]any
	cache       *lruCache[string, *Filter]
}

// NewCompiler creates a new expr-based filter compiler
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{
		helperFuncs: createHelperFunctions(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compile compiles an expression into an executable filter
func Compile(expression string) (*Filter, error) {
	return NewCompiler().Compile(expression)
}

// Compile compiles an expression into an executable filter
func (c *Compiler) Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Every record variable is declared up front so typos fail here, not per record
	env := make(map[string]any, 48)
	maps.Copy(env, c.helperFuncs)
	maps.Copy(env, garageEnvironment(liege.Garage{}))
	maps.Copy(env, disabledParkingEnvironment(liege.DisabledParking{}))

	program, err := expr.Compile(expression,
		expr.Env(env),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &Filter{
		expression: expression,
		program:    program,
		helpers:    maps.Clone(c.helperFuncs),
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *Compiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *Compiler) Size() int {
	if c.cache != nil {
		return c.cache.Len()
	}
	return 0
}

// Expression returns the original expression
func (f *Filter) Expression() string {
	return f.expression
}

// MatchGarage evaluates the filter against a garage
func (f *Filter) MatchGarage(garage liege.Garage) (bool, error) {
	return f.run(garageEnvironment(garage), garage.Name)
}

// MatchDisabledParking evaluates the filter against a disabled parking spot
func (f *Filter) MatchDisabledParking(spot liege.DisabledParking) (bool, error) {
	return f.run(disabledParkingEnvironment(spot), spot.SpotID)
}

// run evaluates the program; record fields shadow helpers of the same name
func (f *Filter) run(record map[string]any, name string) (bool, error) {
	env := make(map[string]any, len(f.helpers)+len(record))
	maps.Copy(env, f.helpers)
	maps.Copy(env, record)

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			Record:     name,
			Reason:     "failed to evaluate expression",
			Err:        err,
		}
	}

	matched, ok := result.(bool)
	if !ok {
		return false, &EvaluationError{
			Expression: f.expression,
			Record:     name,
			Reason:     "expression did not return a boolean",
		}
	}
	return matched, nil
}

// createHelperFunctions creates the static helper functions used during compilation
func createHelperFunctions() map[string]any {
	funcs := make(map[string]any, 8)
	addHelperFunctions(funcs)
	return funcs
}

// addHelperFunctions adds the record independent helpers to env
func addHelperFunctions(env map[string]any) {
	env["daysSince"] = func(t time.Time) int {
		return int(time.Since(t).Hours() / 24)
	}
	env["daysAgo"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, -days)
	}
	env["parseDate"] = func(dateStr string) time.Time {
		t, _ := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
		return t
	}
	env["containsFold"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
}

func garageEnvironment(g liege.Garage) map[string]any {
	return map[string]any{
		"Name":             g.Name,
		"Capacity":         int(g.Capacity.ValueOrZero()),
		"HasCapacity":      g.Capacity.Valid,
		"ChargingStations": g.ChargingStations,
		"Address":          g.Address,
		"Municipality":     g.Municipality,
		"City":             g.City,
		"Provider":         g.Provider,
		"Schedule":         g.Schedule,
		"URL":              g.URL,
		"Longitude":        g.Longitude,
		"Latitude":         g.Latitude,
		"CreatedAt":        g.CreatedAt,
		"UpdatedAt":        g.UpdatedAt,
		"distanceTo":       createDistanceFunc(g.Latitude, g.Longitude),
	}
}

func disabledParkingEnvironment(p liege.DisabledParking) map[string]any {
	return map[string]any{
		"SpotID":       p.SpotID,
		"Number":       p.Number,
		"Address":      p.Address,
		"Municipality": p.Municipality,
		"City":         p.City,
		"Status":       p.Status,
		"Active":       p.IsActive(),
		"Longitude":    p.Longitude,
		"Latitude":     p.Latitude,
		"CreatedAt":    p.CreatedAt,
		"UpdatedAt":    p.UpdatedAt,
		"distanceTo":   createDistanceFunc(p.Latitude, p.Longitude),
	}
}

// createDistanceFunc returns the haversine distance in km from the record to a point
func createDistanceFunc(lat, lon float64) func(float64, float64) float64 {
	return func(toLat, toLon float64) float64 {
		return haversine(lat, lon, toLat, toLon)
	}
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
