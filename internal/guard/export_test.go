// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guard

import "time"

// SetPollInterval shortens the barrier poll spacing so barrier tests run
// in milliseconds instead of seconds.
func (g *Guard) SetPollInterval(interval time.Duration) {
	g.pollInterval = interval
}
