// ABOUTME: Semantic tags derived from classification paths.
// ABOUTME: Lets searches like "降压" or "降糖" find drugs by purpose.
package drugs

import "strings"

var pathTags = []struct {
	keyword string
	tag     string
}{
	{"抗血栓", "抗凝"},
	{"血小板凝聚抑制", "抗血小板"},
	{"镇痛", "止痛"},
	{"抗炎和抗风湿", "消炎"},
	{"糖尿病", "降糖"},
	{"血脂修正", "降脂"},
	{"血管紧张素", "降压"},
	{"β受体阻滞", "降压"},
	{"钙通道阻滞", "降压"},
	{"利尿", "降压"},
	{"胃酸", "护胃"},
	{"抗菌", "消炎"},
	{"抗抑郁", "抗抑郁"},
	{"解表", "感冒"},
	{"咳嗽和感冒", "感冒"},
	{"矿物质补充", "补钙"},
	{"抗贫血", "补血"},
}

func tagsFor(paths []string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, p := range paths {
		for _, pt := range pathTags {
			if strings.Contains(p, pt.keyword) && !seen[pt.tag] {
				seen[pt.tag] = true
				tags = append(tags, pt.tag)
			}
		}
	}
	return tags
}
