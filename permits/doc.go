// Package permits provides a fixed-capacity counting semaphore for Go.
// A Pool issues permits in bulk, blocks acquirers until enough permits are
// free, and guarantees that a cancelled waiter leaves the shared count
// exactly as if it had never asked.
package permits
