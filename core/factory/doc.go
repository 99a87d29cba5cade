// Package factory instantiates pluggable modules (price sources, metrics
// sinks) from configuration. A module is a type name plus raw settings; the
// registered constructor decodes the settings into its own struct.
//
//	reg := factory.NewRegistry[pricing.Source]()
//	_ = reg.Register("flat", func(conf map[string]any) (pricing.Source, error) {
//	    var f pricing.Flat
//	    return f, factory.Decode(conf, &f)
//	})
//	src, err := reg.Create(factory.ModuleConfig{Type: "flat", Conf: map[string]any{"energy": 50}})
package factory
