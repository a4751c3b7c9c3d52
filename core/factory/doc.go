// Package factory provides a small generic registry used to instantiate
// pluggable modules (metrics sinks, grid stores, journals) from
// configuration. A module is a type string plus a map of raw settings;
// factories decode the settings into typed structs with Decode.
//
// Example usage:
//
//	reg := factory.NewRegistry[grid.Store]()
//	reg.Register("sqlite", func(conf map[string]any) (grid.Store, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return store.OpenSQLite(c.Path)
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{"path": "grid.db"}})
package factory
