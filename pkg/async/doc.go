// Package async runs functions concurrently and collects their results as futures.
//
//	remote := async.Async(ctx, rec, remoteStore.Save)
//	local := async.Async(ctx, rec, localStore.Save)
//	errs := async.Settle(timeout, remote, local)
package async
