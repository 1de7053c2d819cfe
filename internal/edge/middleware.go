package edge

import "net/http"

// Middleware intercepts article routes in front of next, the application
// handler. Every non-served outcome reaches next untouched.
func Middleware(d *Dispatcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			o := d.Dispatch(r.Context(), FromHTTP(r))
			if o.PassThrough() {
				next.ServeHTTP(w, r)
				return
			}
			o.Write(w)
		})
	}
}
