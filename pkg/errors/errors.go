package errors

import "errors"

// ── 通用错误分类 ──
// 各业务模块的哨兵错误通过 fmt.Errorf("%w: ...") 归入以下类别，
// Handler 层在无专门映射时按类别兜底。

var (
	ErrInvalidInput = errors.New("参数不合法")
	ErrUnauthorized = errors.New("未认证")
	ErrForbidden    = errors.New("无权限")
	ErrNotFound     = errors.New("资源不存在")
	ErrConflict     = errors.New("状态冲突")
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")
