// Package deliver posts card documents to destination webhooks. Deliveries
// are retried up to three times when the destination rate-limits (HTTP 429),
// with fixed 10- and 30-second waits between attempts; any other failure is
// terminal on the first attempt. Waits suspend only the calling goroutine,
// so a slow destination never stalls other in-flight requests.
package deliver
