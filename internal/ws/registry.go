package ws

import "sync"

// Registry 维护每个用户当前打开的连接集合。一个用户可以同时有多个
// 标签页/设备，所以值是 connID -> *Client 的集合。实例由 main 注入，
// 生命周期等于进程生命周期，进程重启后客户端需要重连。
type Registry struct {
	mu    sync.RWMutex
	conns map[uint]map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[uint]map[string]*Client)}
}

// Register 把连接登记到所属用户名下，重复登记同一 (user, conn) 是幂等的。
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.conns[c.UserID]
	if set == nil {
		set = make(map[string]*Client)
		r.conns[c.UserID] = set
	}
	set[c.ID] = c
}

// Unregister 移除连接；对不存在的 (user, conn) 是 no-op，
// 乱序到达的断连事件不算错误。集合清空后整个用户条目一并删除。
func (r *Registry) Unregister(userID uint, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.conns[userID]
	if set == nil {
		return
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(r.conns, userID)
	}
}

// ClientsFor 返回用户当前连接集合的快照副本，调用方可以慢慢遍历，
// 不会阻塞并发的注册/注销。
func (r *Registry) ClientsFor(userID uint) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.conns[userID]
	if len(set) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}

// Online 返回用户当前打开的连接数。
func (r *Registry) Online(userID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID])
}
