package optimistic

import (
	"todoapp/internal/client"
	"todoapp/internal/querycache"
)

// Keys builds the cache keys for todo queries. Lists and details are
// separate slots: {"todos","list",<filters>} and {"todos","detail",<id>}.
var Keys todoKeys

type todoKeys struct{}

func (todoKeys) All() querycache.Key { return querycache.Key{"todos"} }

func (k todoKeys) Lists() querycache.Key { return append(k.All(), "list") }

func (k todoKeys) List(f client.Filters) querycache.Key { return append(k.Lists(), f.Key()) }

func (k todoKeys) Details() querycache.Key { return append(k.All(), "detail") }

func (k todoKeys) Detail(id string) querycache.Key { return append(k.Details(), id) }
