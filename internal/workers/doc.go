/*
Package workers sizes worker pools.

	n := workers.For(workers.Mixed, 32) // 1.5 per CPU, at most 32

The indexer runs one Mixed pool per scan. SCAN_WORKERS pins the size, and
a positive Workers value in the engine config beats both (see Resolve).
*/
package workers
