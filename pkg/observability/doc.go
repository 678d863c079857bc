/*
Package observability turns router lifecycle events into metrics and logs.

Both Metrics.Hooks and LogHooks return domain.LifecycleHooks; chain them and
pass the result to router.WithLifecycleHooks or waypoint.WithHooks.
*/
package observability
