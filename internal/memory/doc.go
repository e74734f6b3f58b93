// Package memory keeps thumbnail decoding inside the process memory budget.
//
// ConfigureLimit derives GOMEMLIMIT from a container limit passed in
// MEMORY_LIMIT (for example through the Kubernetes Downward API), scaled by
// MEMORY_RATIO. A Guard samples heap usage against that limit and, while it
// is above the pause threshold, holds back new decodes until usage drops
// below the resume threshold. Decodes already running are not interrupted.
package memory
