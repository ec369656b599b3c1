// Package mathexpr parses and evaluates the arithmetic used by Compute steps.
//
// Expressions combine numbers, entity attributes (sensor.temp), cached REST
// fields ($OpenWeather.temp) and variables bound earlier in the same run
// (avg) with + - * / and parentheses:
//
//	e, err := mathexpr.Parse("(sensor.temp + $OpenWeather.temp) / 2")
//	avg, err := mathexpr.Eval(e, scope)
//
// The tree is built once and walked on every evaluation; no source text is
// generated or re-parsed at run time.
package mathexpr
