package util

import (
	"os"
	"sync"

	"github.com/denisbrodbeck/machineid"
)

// appID salt for machineid.ProtectedID
const appID = "fast-qr-history-sync"

var (
	machineID      string
	machineIDMutex sync.Mutex
)

// GetMachineID 获取当前设备的标识符
// 优先使用 machineid 库生成的哈希 ID，失败时回退到主机名
// 返回值: 设备 ID 字符串，全部失败时返回空字符串
func GetMachineID() string {
	machineIDMutex.Lock()
	defer machineIDMutex.Unlock()

	if machineID != "" {
		return machineID
	}

	if id, err := machineid.ProtectedID(appID); err == nil && id != "" {
		machineID = id
		return machineID
	}

	if host, err := os.Hostname(); err == nil && host != "" {
		machineID = "host-" + host
		return machineID
	}

	return ""
}
