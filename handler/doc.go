// Package handler adapts typed request handlers to net/http for the membership API.
//
// A HandlerFunc receives a Context and a request struct filled by the configured
// binders, and returns a Response:
//
//	h := handler.Wrap(func(ctx handler.Context, req useCreditRequest) handler.Response {
//		res, err := svc.UseCredit(ctx, ctx.UserID(), req.Kind)
//		if err != nil {
//			return handler.JSONError(errorResponse(err))
//		}
//		return handler.JSON(res)
//	}, handler.WithBinders[useCreditRequest](binder.Path()), handler.WithDecorators(handler.RequireUser[useCreditRequest]()))
//
// Responses cover plain JSON, templ pages, datastar element patches and SSE streams,
// and binary blobs such as QR codes. Errors that escape a handler are classified
// into an HTTPError, logged with the request ID and rendered as a JSON error body.
// Raw error text is never sent for 5xx responses.
package handler
