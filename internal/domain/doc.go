// Package domain contains the memorization entities of the application:
// per-subject memorization records, the daily activity streak, and the
// derived review and summary values computed from them. It is independent
// of any storage or delivery mechanism.
package domain
