// Package render drives a frame-producing plugin across a pool of workers.
// A Supervisor selects, filters and plans the frames to render, hands the
// chunks to a Pool and aggregates the per-task outcomes into a Result. Render
// failures are recorded per frame and never abort the remaining work.
package render
