package utils

import "testing"

func TestNormalizeIP(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "plain_ipv4",
			input: "192.168.1.10",
			want:  "192.168.1.10",
		},
		{
			name:  "ipv4_with_port",
			input: "192.168.1.10:8080",
			want:  "192.168.1.10",
		},
		{
			name:  "forwarded_for_list",
			input: "10.0.0.1, 172.16.0.1",
			want:  "10.0.0.1",
		},
		{
			name:  "ipv4_mapped_ipv6",
			input: "::ffff:192.0.2.1",
			want:  "192.0.2.1",
		},
		{
			name:  "ipv6_with_port",
			input: "[2001:db8::1]:443",
			want:  "2001:db8::1",
		},
		{
			name:  "not_an_ip",
			input: "host.example.com",
			want:  "host.example.com",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeIP(tt.input); got != tt.want {
				t.Errorf("NormalizeIP() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeMAC(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "colon_upper",
			input: "AA:BB:CC:DD:EE:FF",
			want:  "aa:bb:cc:dd:ee:ff",
		},
		{
			name:  "hyphen",
			input: "aa-bb-cc-dd-ee-ff",
			want:  "aa:bb:cc:dd:ee:ff",
		},
		{
			name:  "cisco_dot",
			input: "aabb.ccdd.eeff",
			want:  "aa:bb:cc:dd:ee:ff",
		},
		{
			name:  "unparseable",
			input: "NOT-A-MAC",
			want:  "not-a-mac",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeMAC(tt.input); got != tt.want {
				t.Errorf("NormalizeMAC() = %v, want %v", got, tt.want)
			}
		})
	}
}
