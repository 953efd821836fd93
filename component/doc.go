// Package component starts and stops the long-lived parts of the service in
// a fixed order.
//
// Components start in registration order and stop in reverse. A component
// that also implements observability.HealthChecker is reported by the
// health endpoint through Registry.Checkers.
package component
