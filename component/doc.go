// Package component defines the lifecycle interface shared by the agent's
// long-running parts (discovery rounds, admin server, telemetry) and the
// Registry that starts them in order and stops them in reverse.
//
// # Interfaces
//
//   - Component: lifecycle (Start/Stop) and health reporting
//   - Describable: startup summary descriptions
//   - RouteProvider: HTTP routes for the startup summary
package component
