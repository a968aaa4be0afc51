package ossfs

import "github.com/zenkj/ossfs/bridge"

type Middleware func(next bridge.Operations) bridge.Operations

func Chain(ops bridge.Operations, middlewares ...Middleware) bridge.Operations {
	for i := len(middlewares) - 1; i >= 0; i-- {
		ops = middlewares[i](ops)
	}

	return ops
}
