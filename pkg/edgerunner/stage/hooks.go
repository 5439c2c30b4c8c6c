package stage

// Hooks is the capability set a stage implementation provides,
// mirroring EdgineBase's prerun/blogic/postrun split
// (original_source/edgine/src/base/__init__.py). Run is required; the
// other two default to no-ops via BaseHooks.
//
// Run generalizes the original's single secondary_data dict lookup
// into an explicit parameter: secondary holds the latest cached value
// from each registered secondary wire, in registration order, with nil
// where nothing has arrived yet.
type Hooks interface {
	PreRun() error
	Run(primary any, secondary []any) (out any, err error)
	PostRun() error
}

// BaseHooks supplies no-op PreRun/PostRun for embedding. A concrete
// stage type embeds BaseHooks and adds its own Run method.
type BaseHooks struct{}

func (BaseHooks) PreRun() error  { return nil }
func (BaseHooks) PostRun() error { return nil }
