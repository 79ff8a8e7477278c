package objective

import (
	"fmt"
	"math"
	"sort"
)

// Built-in benchmark functions. All are expressed as maximization problems;
// the classical minimization forms are negated so that the true optimum of
// sphere, rastrigin, and rosenbrock is 0.

// Sphere is the negated sphere function, maximized at the origin.
func Sphere(x []float64) (float64, error) {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return -sum, nil
}

// Rastrigin is the negated Rastrigin function, highly multimodal,
// maximized at the origin.
func Rastrigin(x []float64) (float64, error) {
	const a = 10
	sum := a * float64(len(x))
	for _, v := range x {
		sum += v*v - a*math.Cos(2*math.Pi*v)
	}
	return -sum, nil
}

// Rosenbrock is the negated Rosenbrock banana function, maximized at (1,...,1).
func Rosenbrock(x []float64) (float64, error) {
	var sum float64
	for i := 0; i < len(x)-1; i++ {
		d := x[i+1] - x[i]*x[i]
		sum += 100*d*d + (1-x[i])*(1-x[i])
	}
	return -sum, nil
}

// MyceliumGrowth scores a six-parameter growth environment
// [temperature, humidity, nutrients, pH, light, CO2], rewarding conditions
// near the cultivar optima with a bonus for balanced inputs.
func MyceliumGrowth(x []float64) (float64, error) {
	if len(x) < 6 {
		return 0, &DimensionError{Want: 6, Got: len(x)}
	}

	tempOpt := 1 - sq(x[0]-0.7)
	humidityOpt := 1 - sq(x[1]-0.8)
	nutrients := math.Max(0, x[2])
	phOpt := 1 - sq(x[3]-0.3)
	lightFactor := 1 / (1 + math.Abs(x[4]))
	co2Factor := math.Max(0, x[5])

	base := tempOpt * humidityOpt * nutrients * phOpt * lightFactor * co2Factor

	var absSum float64
	for _, v := range x {
		absSum += math.Abs(v)
	}
	balanceBonus := 1 / (1 + absSum/float64(len(x)))

	return base + balanceBonus, nil
}

func sq(v float64) float64 { return v * v }

var builtins = map[string]Func{
	"sphere":     Sphere,
	"rastrigin":  Rastrigin,
	"rosenbrock": Rosenbrock,
	"mycelium":   MyceliumGrowth,
}

// Lookup returns the built-in function registered under name.
func Lookup(name string) (Func, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown objective %q (available: %v)", name, Names())
	}
	return fn, nil
}

// Names lists the registered built-in objectives in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
